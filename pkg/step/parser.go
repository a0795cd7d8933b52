package step

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrNotStep is returned when the input has no ISO-10303-21 DATA section
var ErrNotStep = errors.New("not an ISO-10303-21 file")

// ProgressFunc receives the number of bytes consumed so far and the total (0 if unknown)
type ProgressFunc func(read, total int64)

// Record is one entity instance of the DATA section
type Record struct {
	ID   int
	Type string // upper case, e.g. IFCWALL
	Args []Value
}

// Arg returns attribute i, or a null value when the record is shorter
func (r *Record) Arg(i int) Value {
	if r == nil || i < 0 || i >= len(r.Args) {
		return Value{Kind: Null}
	}
	return r.Args[i]
}

// File is an indexed STEP physical file
type File struct {
	Schema    []string
	Malformed int // records that could not be parsed and were skipped

	records map[int]*Record
	byType  map[string][]int
}

// Record returns the instance with the given express ID
func (f *File) Record(id int) (*Record, bool) {
	r, ok := f.records[id]
	return r, ok
}

// OfType returns the express IDs of all instances of the given type, in ascending order
func (f *File) OfType(typeName string) []int {
	return f.byType[strings.ToUpper(typeName)]
}

// Len returns the number of records
func (f *File) Len() int {
	return len(f.records)
}

// Each calls fn for every record, grouped by type
func (f *File) Each(fn func(*Record)) {
	for _, ids := range f.byType {
		for _, id := range ids {
			fn(f.records[id])
		}
	}
}

// Types returns the distinct entity type names with their instance count
func (f *File) Types() map[string]int {
	out := make(map[string]int, len(f.byType))
	for t, ids := range f.byType {
		out[t] = len(ids)
	}
	return out
}

// ParseFile opens and parses a STEP file, reporting progress against its size
func ParseFile(ctx context.Context, path string, progress ProgressFunc) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer fh.Close()

	var total int64
	if st, err := fh.Stat(); err == nil {
		total = st.Size()
	}
	return Parse(ctx, fh, total, progress)
}

// Parse reads a STEP physical file. total is the expected byte count for progress
// reporting and may be 0. Malformed DATA records are skipped and counted.
// Parsing stops with ctx's error once ctx is done.
func Parse(ctx context.Context, r io.Reader, total int64, progress ProgressFunc) (*File, error) {
	s := &statementScanner{ctx: ctx, r: bufio.NewReaderSize(r, 64*1024), total: total, progress: progress}
	f := &File{
		records: make(map[int]*Record),
		byType:  make(map[string][]int),
	}

	inData := false
	sawData := false
	for {
		stmt, err := s.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading STEP file: %w", err)
		}

		switch {
		case stmt == "DATA" || strings.HasPrefix(stmt, "DATA("):
			inData = true
			sawData = true
		case stmt == "ENDSEC":
			inData = false
		case strings.HasPrefix(stmt, "FILE_SCHEMA"):
			f.Schema = parseSchema(stmt)
		case inData && strings.HasPrefix(stmt, "#"):
			rec, err := parseRecord(stmt)
			if err != nil {
				f.Malformed++
				continue
			}
			f.records[rec.ID] = rec
			f.byType[rec.Type] = append(f.byType[rec.Type], rec.ID)
		}
	}
	s.report()

	if !sawData {
		return nil, ErrNotStep
	}
	for _, ids := range f.byType {
		sort.Ints(ids)
	}
	return f, nil
}

// statementScanner splits the input at ';' outside strings and comments
type statementScanner struct {
	ctx      context.Context
	r        *bufio.Reader
	buf      []byte
	read     int64
	total    int64
	progress ProgressFunc
	lastSent int64
}

func (s *statementScanner) readByte() (byte, error) {
	c, err := s.r.ReadByte()
	if err != nil {
		return c, err
	}
	s.read++
	if s.read-s.lastSent >= 256*1024 {
		if err := s.ctx.Err(); err != nil {
			return 0, err
		}
		s.report()
	}
	return c, nil
}

func (s *statementScanner) report() {
	s.lastSent = s.read
	if s.progress != nil {
		s.progress(s.read, s.total)
	}
}

func (s *statementScanner) next() (string, error) {
	s.buf = s.buf[:0]
	inString := false
	for {
		c, err := s.readByte()
		if err != nil {
			if err == io.EOF && len(strings.TrimSpace(string(s.buf))) > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}

		if inString {
			s.buf = append(s.buf, c)
			if c == '\'' {
				peek, err := s.r.Peek(1)
				if err == nil && peek[0] == '\'' {
					next, _ := s.readByte()
					s.buf = append(s.buf, next)
					continue
				}
				inString = false
			}
			continue
		}

		switch c {
		case '\'':
			inString = true
			s.buf = append(s.buf, c)
		case '/':
			peek, err := s.r.Peek(1)
			if err == nil && peek[0] == '*' {
				_, _ = s.readByte()
				if err := s.skipComment(); err != nil {
					return "", err
				}
				continue
			}
			s.buf = append(s.buf, c)
		case ';':
			return strings.TrimSpace(string(s.buf)), nil
		case '\r', '\n', '\t':
			s.buf = append(s.buf, ' ')
		default:
			s.buf = append(s.buf, c)
		}
	}
}

func (s *statementScanner) skipComment() error {
	prev := byte(0)
	for {
		c, err := s.readByte()
		if err != nil {
			return err
		}
		if prev == '*' && c == '/' {
			return nil
		}
		prev = c
	}
}

func parseSchema(stmt string) []string {
	p := &valueParser{s: stmt, pos: strings.IndexByte(stmt, '(')}
	if p.pos < 0 {
		return nil
	}
	v, err := p.value()
	if err != nil {
		return nil
	}
	var out []string
	var collect func(Value)
	collect = func(v Value) {
		switch v.Kind {
		case String:
			out = append(out, v.Str)
		case List:
			for _, it := range v.Items {
				collect(it)
			}
		}
	}
	collect(v)
	return out
}

func parseRecord(stmt string) (*Record, error) {
	eq := strings.IndexByte(stmt, '=')
	if eq < 0 {
		return nil, fmt.Errorf("missing '=' in %q", truncate(stmt))
	}
	id, err := strconv.Atoi(strings.TrimSpace(stmt[1:eq]))
	if err != nil {
		return nil, fmt.Errorf("bad instance id in %q: %w", truncate(stmt), err)
	}

	p := &valueParser{s: stmt, pos: eq + 1}
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("missing entity type in %q", truncate(stmt))
	}
	p.skipSpace()
	args, err := p.list()
	if err != nil {
		return nil, fmt.Errorf("#%d: %w", id, err)
	}
	return &Record{ID: id, Type: strings.ToUpper(name), Args: args.Items}, nil
}

func truncate(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

type valueParser struct {
	s   string
	pos int
}

func (p *valueParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *valueParser) ident() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '_' || c == '-' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9' && p.pos > start) {
			p.pos++
			continue
		}
		break
	}
	return p.s[start:p.pos]
}

func (p *valueParser) list() (Value, error) {
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return Value{}, fmt.Errorf("expected '(' at offset %d", p.pos)
	}
	p.pos++
	items := []Value{}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return Value{Kind: List, Items: items}, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return Value{}, errors.New("unterminated list")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return Value{Kind: List, Items: items}, nil
		default:
			return Value{}, fmt.Errorf("unexpected %q at offset %d", p.s[p.pos], p.pos)
		}
	}
}

func (p *valueParser) value() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return Value{}, errors.New("unexpected end of record")
	}
	c := p.s[p.pos]
	switch {
	case c == '$':
		p.pos++
		return Value{Kind: Null}, nil
	case c == '*':
		p.pos++
		return Value{Kind: Derived}, nil
	case c == '#':
		p.pos++
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		id, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return Value{}, fmt.Errorf("bad reference at offset %d", start)
		}
		return Value{Kind: Ref, Ref: id}, nil
	case c == '\'':
		return p.str()
	case c == '.':
		end := strings.IndexByte(p.s[p.pos+1:], '.')
		if end < 0 {
			return Value{}, errors.New("unterminated enumeration")
		}
		v := Value{Kind: Enum, Str: p.s[p.pos+1 : p.pos+1+end]}
		p.pos += end + 2
		return v, nil
	case c == '"':
		end := strings.IndexByte(p.s[p.pos+1:], '"')
		if end < 0 {
			return Value{}, errors.New("unterminated binary")
		}
		v := Value{Kind: Binary, Str: p.s[p.pos+1 : p.pos+1+end]}
		p.pos += end + 2
		return v, nil
	case c == '(':
		return p.list()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		start := p.pos
		p.pos++
		for p.pos < len(p.s) && strings.IndexByte("0123456789.eE+-", p.s[p.pos]) >= 0 {
			p.pos++
		}
		n, err := strconv.ParseFloat(p.s[start:p.pos], 64)
		if err != nil {
			return Value{}, fmt.Errorf("bad number %q", p.s[start:p.pos])
		}
		return Value{Kind: Number, Num: n}, nil
	case c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
		name := p.ident()
		p.skipSpace()
		inner, err := p.list()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: Typed, Str: strings.ToUpper(name), Items: inner.Items}, nil
	}
	return Value{}, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
}

func (p *valueParser) str() (Value, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.s) && p.s[p.pos+1] == '\'' {
				sb.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return Value{Kind: String, Str: decodeString(sb.String())}, nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return Value{}, errors.New("unterminated string")
}

// decodeString resolves the \X\hh and \X2\...\X0\ control directives
func decodeString(s string) string {
	if !strings.Contains(s, `\X`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\X2\`):
			end := strings.Index(s[i+4:], `\X0\`)
			if end < 0 {
				sb.WriteString(s[i:])
				return sb.String()
			}
			hex := s[i+4 : i+4+end]
			units := make([]uint16, 0, len(hex)/4)
			for j := 0; j+4 <= len(hex); j += 4 {
				u, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					break
				}
				units = append(units, uint16(u))
			}
			sb.WriteString(string(utf16.Decode(units)))
			i += 4 + end + 4
		case strings.HasPrefix(s[i:], `\X\`) && i+5 <= len(s):
			u, err := strconv.ParseUint(s[i+3:i+5], 16, 8)
			if err != nil {
				sb.WriteByte(s[i])
				i++
				continue
			}
			sb.WriteRune(rune(u))
			i += 5
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}
