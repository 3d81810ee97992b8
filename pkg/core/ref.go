package core

// AssetRef points at another asset, either by identifier or by the path of
// the source file that produces it. Exactly one of the two is set.
type AssetRef struct {
	UUID AssetUUID `yaml:"uuid,omitempty"`
	Path string    `yaml:"path,omitempty"`
}

// RefUUID references an asset by identifier.
func RefUUID(id AssetUUID) AssetRef {
	return AssetRef{UUID: id}
}

// RefPath references an asset by source path. The loader resolves it to an
// identifier once the path has been imported.
func RefPath(path string) AssetRef {
	return AssetRef{Path: path}
}

// IsPath reports whether the reference is still path based.
func (r AssetRef) IsPath() bool {
	return r.Path != ""
}

func (r AssetRef) String() string {
	if r.IsPath() {
		return "path:" + r.Path
	}
	return r.UUID.String()
}
