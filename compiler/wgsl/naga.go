package wgsl

import "github.com/gogpu/naga"

// validateWithNaga round-trips source through naga's WGSL front-end,
// discarding the translated module — the only thing we want here is naga's
// parse/validate error, which surfaces a malformed lowering long before it
// reaches a device's own shader compiler.
func validateWithNaga(source string) error {
	_, err := naga.Compile(source)
	return err
}
