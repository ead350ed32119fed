package magic

import (
	"strconv"
	"strings"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
)

// Kind identifies the record type of a single layout line.
type Kind int

const (
	KindUnknown Kind = iota
	KindBlank
	KindMagic
	KindTech
	KindTimestamp
	KindScale
	KindLayer
	KindRect
	KindUse
	KindTransform
	KindBox
	KindLabel
	KindPort
)

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindBlank:     "blank",
	KindMagic:     "magic",
	KindTech:      "tech",
	KindTimestamp: "timestamp",
	KindScale:     "magscale",
	KindLayer:     "layer",
	KindRect:      "rect",
	KindUse:       "use",
	KindTransform: "transform",
	KindBox:       "box",
	KindLabel:     "flabel",
	KindPort:      "port",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// labelTokens is the exact token count of an flabel record:
// flabel <id> <int>x5 <id> <int>x4 <id>.
const labelTokens = 13

// Record is one classified line. Only the fields relevant to Kind are set.
type Record struct {
	Kind   Kind
	Fields []string // whitespace-separated tokens of the line

	Name      string         // layer name, tech name, cell name (use) or label text
	Instance  string         // instance name (use)
	Rect      geom.Rect      // rect
	Transform geom.Transform // transform
}

// Classify determines the record kind of one line. Leading and trailing
// whitespace is ignored.
//
// The first token selects the kind. Malformed rect, transform, use, magic and
// layer lines return a STRUCTURAL error without position; the caller adds the
// file and line. Timestamp, magscale and flabel lines that do not fit their
// grammar (such as sticky labels) are KindUnknown, as is anything else.
// A use record needs a cell and an instance name; further tokens, such as
// the library path Magic may write, are ignored.
func Classify(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{Kind: KindBlank}, nil
	}
	if strings.HasPrefix(line, "<<") {
		return classifyLayer(line)
	}

	fields := strings.Fields(line)
	rec := Record{Fields: fields}

	switch fields[0] {
	case "magic":
		if len(fields) != 1 {
			return rec, malformed("magic", line)
		}
		rec.Kind = KindMagic
	case "tech":
		rec.Kind = KindTech
		if len(fields) > 1 {
			rec.Name = fields[1]
		}
	case "timestamp":
		if len(fields) == 2 && isInt(fields[1]) {
			rec.Kind = KindTimestamp
		}
	case "magscale":
		if len(fields) == 3 && isInt(fields[1]) && isInt(fields[2]) {
			rec.Kind = KindScale
		}
	case "rect":
		v, ok := ints(fields[1:], 4)
		if !ok {
			return rec, malformed("rect", line)
		}
		rec.Kind = KindRect
		rec.Rect = geom.R(v[0], v[1], v[2], v[3])
	case "use":
		if len(fields) < 3 {
			return rec, malformed("use", line)
		}
		rec.Kind = KindUse
		rec.Name = fields[1]
		rec.Instance = fields[2]
	case "transform":
		t, err := transformFields(fields, line)
		if err != nil {
			return rec, err
		}
		rec.Kind = KindTransform
		rec.Transform = t
	case "box":
		rec.Kind = KindBox
	case "flabel":
		if validLabel(fields) {
			rec.Kind = KindLabel
			rec.Name = fields[labelTokens-1]
		}
	case "port":
		rec.Kind = KindPort
	}
	return rec, nil
}

func classifyLayer(line string) (Record, error) {
	rec := Record{Fields: strings.Fields(line)}
	if !strings.HasSuffix(line, ">>") || len(line) < 4 {
		return rec, malformed("layer directive", line)
	}
	name := strings.TrimSpace(line[2 : len(line)-2])
	if name == "" || strings.ContainsAny(name, " \t") {
		return rec, malformed("layer directive", line)
	}
	rec.Kind = KindLayer
	rec.Name = name
	return rec, nil
}

// validLabel checks the flabel token layout: ids at 1, 7 and 12, integers elsewhere.
func validLabel(fields []string) bool {
	if len(fields) != labelTokens {
		return false
	}
	for i := 2; i < labelTokens-1; i++ {
		if i == 7 {
			continue
		}
		if !isInt(fields[i]) {
			return false
		}
	}
	return true
}

func ints(fields []string, n int) ([]int64, bool) {
	if len(fields) != n {
		return nil, false
	}
	out := make([]int64, n)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func malformed(what, line string) *errors.Error {
	return errors.New(errors.ErrCodeStructural, "malformed %s record %q", what, line)
}
