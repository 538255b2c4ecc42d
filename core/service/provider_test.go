package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/service"
)

type fakeService struct{ name string }

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry()
	svc := &fakeService{name: "a"}
	require.NoError(t, reg.Register("EchoService", svc))

	got, err := reg.GetByName("EchoService", "")
	require.NoError(t, err)
	assert.Same(t, svc, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryScopedLookup(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry()
	unscoped := &fakeService{name: "unscoped"}
	scoped := &fakeService{name: "scoped"}
	require.NoError(t, reg.Register("Svc", unscoped))
	require.NoError(t, reg.RegisterScoped("Svc", "tenant-a", scoped))

	got, err := reg.GetByName("Svc", "tenant-a")
	require.NoError(t, err)
	assert.Same(t, scoped, got)

	got, err = reg.GetByName("Svc", "")
	require.NoError(t, err)
	assert.Same(t, unscoped, got)

	// Scope matching is exact; an unknown scope does not fall back.
	_, err = reg.GetByName("Svc", "tenant-b")
	assert.ErrorIs(t, err, service.ErrServiceNotRegistered)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry()
	require.NoError(t, reg.Register("Svc", &fakeService{}))

	err := reg.Register("Svc", &fakeService{})
	assert.ErrorIs(t, err, service.ErrDuplicateService)
}

func TestRegistryValidation(t *testing.T) {
	t.Parallel()

	reg := service.NewRegistry()

	assert.ErrorIs(t, reg.Register("", &fakeService{}), service.ErrEmptyServiceName)
	assert.ErrorIs(t, reg.Register("  ", &fakeService{}), service.ErrEmptyServiceName)
	assert.ErrorIs(t, reg.Register("Svc", nil), service.ErrNilService)

	_, err := reg.GetByName("Missing", "")
	assert.ErrorIs(t, err, service.ErrServiceNotRegistered)
}

func TestRegisterInitializer(t *testing.T) {
	t.Parallel()

	service.RegisterInitializer("provider-test", func() service.Initializer {
		return service.InitializerFunc(func(ctx context.Context, reg *service.Registry) error {
			return reg.Register("Svc", &fakeService{})
		})
	})

	factory, err := service.RegisteredInitializer("provider-test")
	require.NoError(t, err)

	reg := service.NewRegistry()
	require.NoError(t, factory().Initialize(context.Background(), reg))
	assert.Equal(t, 1, reg.Len())
}

func TestRegisteredInitializerMissing(t *testing.T) {
	t.Parallel()

	_, err := service.RegisteredInitializer("no-such-initializer")
	assert.ErrorIs(t, err, service.ErrInitializerNotFound)
}

func TestRegisterInitializerDuplicatePanics(t *testing.T) {
	t.Parallel()

	factory := func() service.Initializer {
		return service.InitializerFunc(func(context.Context, *service.Registry) error { return nil })
	}

	service.RegisterInitializer("provider-test-dup", factory)
	assert.Panics(t, func() {
		service.RegisterInitializer("provider-test-dup", factory)
	})
}
