package machine

import (
	"fmt"
	"io"
	"sort"

	"github.com/DC1996/ipp21-interpreter/lang/value"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/maps"
)

// dumper writes BREAK's diagnostic dump of the current PC and the three
// frames: a small struct around an io.Writer that walks a fixed structure
// and prints one line per entry.
type dumper struct {
	w io.Writer
}

func (d *dumper) dump(pc int, fs *FrameStore) {
	fmt.Fprintf(d.w, "BREAK at instruction %d\n", pc)
	d.dumpFrame("GF", fs.Global())
	for i, lf := range fs.Locals() {
		d.dumpFrame(fmt.Sprintf("LF[%d]", i), lf)
	}
	if tf := fs.Temp(); tf != nil {
		d.dumpFrame("TF", tf)
	} else {
		fmt.Fprintln(d.w, "TF: absent")
	}
}

func (d *dumper) dumpFrame(label string, fr *swiss.Map[string, value.Value]) {
	if fr == nil {
		fmt.Fprintf(d.w, "%s: absent\n", label)
		return
	}
	names := maps.Keys(toGoMap(fr))
	sort.Strings(names)
	fmt.Fprintf(d.w, "%s: %d variable(s)\n", label, len(names))
	for _, name := range names {
		v, _ := fr.Get(name)
		fmt.Fprintf(d.w, "  %s = %s (%s)\n", name, v.String(), typeLabel(v))
	}
}

// toGoMap copies a swiss.Map's keys into a plain Go map so sorted iteration
// (golang.org/x/exp/maps.Keys) can be used; swiss.Map itself has no ordered
// iteration.
func toGoMap(fr *swiss.Map[string, value.Value]) map[string]value.Value {
	out := make(map[string]value.Value, fr.Count())
	fr.Iter(func(k string, v value.Value) bool {
		out[k] = v
		return false
	})
	return out
}
