package kvstore

import "context"

type namespaced struct {
	inner  Store
	prefix string
}

// Namespaced prefixes every key with prefix + ":". An empty prefix returns store as is.
func Namespaced(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return &namespaced{inner: store, prefix: prefix + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.prefix+key)
}
