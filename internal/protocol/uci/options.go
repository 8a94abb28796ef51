package uci

import (
	"errors"
	"fmt"
	"strconv"
)

// Option is a single `setoption` target, the way the teacher's own
// uci.Option interface (uci/option.go) lets the protocol layer stay
// generic over the concrete engine knobs it exposes.
type Option interface {
	UciName() string
	UciString() string
	Set(s string) error
}

// BoolOption backs a `setoption name X value true|false` UCI check box.
type BoolOption struct {
	Name  string
	Value *bool
}

func (opt *BoolOption) UciName() string { return opt.Name }

func (opt *BoolOption) UciString() string {
	return fmt.Sprintf("option name %v type check default %v", opt.Name, *opt.Value)
}

func (opt *BoolOption) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*opt.Value = v
	return nil
}

// IntOption backs a `setoption name X value N` UCI spin box, bounded
// to [Min, Max].
type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (opt *IntOption) UciName() string { return opt.Name }

func (opt *IntOption) UciString() string {
	return fmt.Sprintf("option name %v type spin default %v min %v max %v",
		opt.Name, *opt.Value, opt.Min, opt.Max)
}

func (opt *IntOption) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < opt.Min || v > opt.Max {
		return errors.New("argument out of range")
	}
	*opt.Value = v
	return nil
}
