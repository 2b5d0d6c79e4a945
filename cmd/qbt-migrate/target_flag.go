package main

import (
	"github.com/spf13/pflag"

	"qbtmigrate/internal/fastresume"
)

// targetOSFlag parses --target-os into a fastresume.TargetOS.
type targetOSFlag struct {
	value fastresume.TargetOS
}

func (f *targetOSFlag) String() string { return f.value.String() }

func (f *targetOSFlag) Set(raw string) error {
	parsed, err := fastresume.ParseTargetOS(raw)
	if err != nil {
		return err
	}
	f.value = parsed
	return nil
}

func (f *targetOSFlag) Type() string { return "os" }

var _ pflag.Value = (*targetOSFlag)(nil)
