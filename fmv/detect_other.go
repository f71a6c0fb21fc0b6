//go:build !amd64 && !arm64

package fmv

// hostProbe reports no features on architectures without a level family.
// Detection then lands on the default family's baseline, so dispatch always
// binds the fallback variant here.
func hostProbe() (FeatureSet, error) {
	return 0, nil
}
