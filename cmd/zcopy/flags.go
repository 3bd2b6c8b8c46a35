package main

import (
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bamsammich/zcopy/internal/config"
)

// sizeFlag is a pflag.Value accepting human sizes like 64K, 1.5M or 2GB.
type sizeFlag struct {
	n   int64
	set bool
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatInt(f.n, 10)
}

func (*sizeFlag) Type() string { return "size" }

func (f *sizeFlag) Set(val string) error {
	n, err := config.ParseSize(val)
	if err != nil {
		return err
	}
	f.n, f.set = n, true
	return nil
}

// orConfig returns the flag value, falling back to the config string when the
// flag was not given.
func (f *sizeFlag) orConfig(fallback *string) (int64, error) {
	if f.set || fallback == nil || *fallback == "" {
		return f.n, nil
	}
	return config.ParseSize(*fallback)
}
