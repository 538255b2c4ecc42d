package service

import "errors"

var (
	// ErrServiceNotRegistered is returned when no service exists under the
	// requested name and scope.
	ErrServiceNotRegistered = errors.New("service is not registered")

	// ErrDuplicateService is returned when registering a service under a
	// name and scope that is already taken.
	ErrDuplicateService = errors.New("service already registered")

	// ErrNilService is returned when registering a nil service value.
	ErrNilService = errors.New("service must not be nil")

	// ErrEmptyServiceName is returned when registering or resolving a
	// service with a blank name.
	ErrEmptyServiceName = errors.New("service name must not be empty")

	// ErrInitializerNotFound is returned when no initializer factory is
	// registered under the requested name.
	ErrInitializerNotFound = errors.New("service initializer not found")
)
