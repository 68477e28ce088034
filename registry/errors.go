package registry

import "errors"

var ErrUnknownCodec = errors.New("registry: unknown codec")

func IsUnknownCodec(err error) bool { return errors.Is(err, ErrUnknownCodec) }
