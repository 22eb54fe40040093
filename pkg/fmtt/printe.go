package fmtt

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// FprintErrChain writes each layer of err's Unwrap chain with its type.
// With debug set, every layer is also dumped with spew.
func FprintErrChain(w io.Writer, err error, debug bool) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	for i := 0; err != nil; i++ {
		fmt.Fprintf(w, "[%d] %T: %v\n", i, err, err)
		if debug {
			cfg.Fdump(w, err)
		}
		err = errors.Unwrap(err)
	}
}

// Dump writes v with spew, pointers followed and addresses hidden.
func Dump(w io.Writer, v any) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, v)
}
