package step

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('house.ifc','2024-01-01T00:00:00',(''),(''),'','','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
/* a comment; with a semicolon */
#1=IFCCOLOURRGB($,0.8,0.2,0.1);
#2=IFCSURFACESTYLERENDERING(#1,0.25,$,$,$,$,IFCNORMALISEDRATIOMEASURE(0.5),$,.NOTDEFINED.);
#3=IFCWALL('2O2Fr$t4X7Zf8NOew3FLOH',$,'it''s a wall',$,$,#10,#11,$,.STANDARD.);
#4=IFCPROPERTYSET('0a',$,'Pset',$,(#5,#6));
#5=IFCPROPERTYSINGLEVALUE('Name',$,IFCLABEL('A\X2\00E4\X0\'),$);
#6=IFCCARTESIANPOINT((0.,-1.5E2,3.));
#7=IFCWALL('1',$,
  'multi line',$,$,$,$,$,$);
ENDSEC;
END-ISO-10303-21;
`

func TestParse(t *testing.T) {
	var calls int
	f, err := Parse(context.Background(), strings.NewReader(sample), int64(len(sample)), func(read, total int64) {
		calls++
		assert.LessOrEqual(t, read, total)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"IFC4"}, f.Schema)
	assert.Equal(t, 7, f.Len())
	assert.Zero(t, f.Malformed)
	assert.Positive(t, calls)
	assert.Equal(t, []int{3, 7}, f.OfType("IfcWall"))
	assert.Equal(t, 2, f.Types()["IFCWALL"])
}

func TestParseValues(t *testing.T) {
	f, err := Parse(context.Background(), strings.NewReader(sample), 0, nil)
	require.NoError(t, err)

	colour, ok := f.Record(1)
	require.True(t, ok)
	assert.Equal(t, "IFCCOLOURRGB", colour.Type)
	assert.True(t, colour.Arg(0).IsNull())
	r, _ := colour.Arg(1).AsFloat()
	assert.InDelta(t, 0.8, r, 1e-9)

	rendering, _ := f.Record(2)
	ref, ok := rendering.Arg(0).AsRef()
	assert.True(t, ok)
	assert.Equal(t, 1, ref)
	spec := rendering.Arg(6)
	assert.Equal(t, Typed, spec.Kind)
	assert.Equal(t, "IFCNORMALISEDRATIOMEASURE", spec.Str)
	v, ok := spec.AsFloat()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)
	assert.Equal(t, Enum, rendering.Arg(8).Kind)
	assert.Equal(t, "NOTDEFINED", rendering.Arg(8).Str)

	wall, _ := f.Record(3)
	name, _ := wall.Arg(2).AsString()
	assert.Equal(t, "it's a wall", name)
	guid, _ := wall.Arg(0).AsString()
	assert.Equal(t, "2O2Fr$t4X7Zf8NOew3FLOH", guid)
	assert.True(t, wall.Arg(42).IsNull())

	pset, _ := f.Record(4)
	assert.Equal(t, []int{5, 6}, pset.Arg(4).AsRefs())

	prop, _ := f.Record(5)
	label, ok := prop.Arg(2).AsString()
	assert.True(t, ok)
	assert.Equal(t, "Aä", label)

	point, _ := f.Record(6)
	coords := point.Arg(0)
	require.Equal(t, List, coords.Kind)
	require.Len(t, coords.Items, 3)
	y, _ := coords.Items[1].AsFloat()
	assert.InDelta(t, -150, y, 1e-9)

	multi, _ := f.Record(7)
	s, _ := multi.Arg(2).AsString()
	assert.Equal(t, "multi line", s)
}

func TestParseMalformedRecordsAreSkipped(t *testing.T) {
	src := "ISO-10303-21;\nDATA;\n#1=IFCWALL('a',;\n#2=IFCSLAB('b');\n#x=FOO();\nENDSEC;\n"
	f, err := Parse(context.Background(), strings.NewReader(src), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 2, f.Malformed)
}

func TestParseStopsWhenCancelled(t *testing.T) {
	var b strings.Builder
	b.WriteString("ISO-10303-21;\nHEADER;\nFILE_SCHEMA(('IFC4'));\nENDSEC;\nDATA;\n")
	for i := 1; b.Len() < 1024*1024; i++ {
		fmt.Fprintf(&b, "#%d=IFCCARTESIANPOINT((%d.,0.,0.));\n", i, i)
	}
	b.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	src := b.String()

	ctx, cancel := context.WithCancel(context.Background())
	var reports int
	_, err := Parse(ctx, strings.NewReader(src), int64(len(src)), func(read, total int64) {
		reports++
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, reports)
}

func TestParseRejectsNonStep(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("solid cube\nendsolid cube\n"), 0, nil)
	assert.ErrorIs(t, err, ErrNotStep)
}

func TestValueString(t *testing.T) {
	v := Value{Kind: List, Items: []Value{
		{Kind: Ref, Ref: 4},
		{Kind: String, Str: "o'k"},
		{Kind: Null},
		{Kind: Typed, Str: "IFCREAL", Items: []Value{{Kind: Number, Num: 1.5}}},
	}}
	assert.Equal(t, "(#4,'o''k',$,IFCREAL(1.5))", v.String())
}
