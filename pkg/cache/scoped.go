package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each tenant of
// a shared cache its own namespace.
//
//	perChart := NewScopedKeyer(NewDefaultKeyer(), "chart:sales:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, falling back to DefaultKeyer when nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) StackKey(dataHash string, opts StackKeyOpts) string {
	return k.prefix + k.inner.StackKey(dataHash, opts)
}

func (k *ScopedKeyer) LayoutKey(stackHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(stackHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
