package di

import "fmt"

// Token is a typed service name.
type Token[T any] struct {
	name string
}

// NewToken creates a token for services of type T.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory under the token name.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service, panicking on a missing registration.
func GetToken[T any](c ServiceRegistry, t Token[T]) T {
	return c.Get(t.name).(T)
}

// Resolve is GetToken with factory panics turned into an error.
func Resolve[T any](c ServiceRegistry, t Token[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("di: resolve %s: %v", t.name, r)
		}
	}()
	return GetToken(c, t), nil
}
