package ipc

// Machine-readable codes carried by RemoteError so the parent can rebuild a
// typed error without string matching. Part of the wire contract.
const (
	CodeServiceNotRegistered    = "service_not_registered"
	CodeInvalidMethod           = "invalid_method"
	CodeInitializerFailure      = "initializer_failure"
	CodeRemoteInvocationFailure = "remote_invocation_failure"
)
