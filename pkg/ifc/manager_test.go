package ifc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const house = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#10=IFCCOLOURRGB($,1.,0.,0.);
#11=IFCSURFACESTYLERENDERING(#10,0.25,$,$,$,$,$,$,.FLAT.);
#12=IFCSURFACESTYLE('Red',.BOTH.,(#11));
#13=IFCPRESENTATIONSTYLEASSIGNMENT((#12));
#20=IFCEXTRUDEDAREASOLID($,$,$,1.);
#21=IFCSTYLEDITEM(#20,(#13),$);
#22=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#20));
#23=IFCPRODUCTDEFINITIONSHAPE($,$,(#22));
#30=IFCWALL('2O2Fr$t4X7Zf8NOew3FLOH',$,'Wall A',$,$,$,#23,'W1');
#40=IFCCOLOURRGB('Blue',0.,0.,1.);
#41=IFCSURFACESTYLESHADING(#40);
#42=IFCSURFACESTYLE($,.BOTH.,(#41));
#43=IFCFACETEDBREP($);
#44=IFCSTYLEDITEM(#43,(#42),$);
#45=IFCSHAPEREPRESENTATION($,'Body','Brep',(#43));
#46=IFCREPRESENTATIONMAP($,#45);
#47=IFCMAPPEDITEM(#46,$);
#48=IFCSHAPEREPRESENTATION($,'Body','MappedRepresentation',(#47));
#49=IFCPRODUCTDEFINITIONSHAPE($,$,(#48));
#50=IFCSLAB('1xS3BCk291UvhgP2a6eflL',$,'Slab',$,$,$,#49,$,.FLOOR.);
#60=IFCWINDOW('0LV8Pd6Qn2pAAe$6Bz9Z_2',$,'Window',$,$,$,$,$);
#70=IFCWINDOWTYPE('3cUkl32yn9qRSPvBJVyWw5',$,'Casement',$,$,$,$,$,$);
#71=IFCRELDEFINESBYTYPE('2HVD8bXu10TfJ9m5mXcV9b',$,$,$,(#60),#70);
ENDSEC;
END-ISO-10303-21;
`

func openHouse(t *testing.T) (*Manager, int) {
	t.Helper()
	m := NewManager()
	id, err := m.Open(context.Background(), "house.ifc", strings.NewReader(house), int64(len(house)), nil)
	require.NoError(t, err)
	return m, id
}

func TestItemProperties(t *testing.T) {
	m, id := openHouse(t)

	p, err := m.ItemProperties(id, 30)
	require.NoError(t, err)
	assert.Equal(t, "IFCWALL", p.Type)
	assert.Equal(t, "2O2Fr$t4X7Zf8NOew3FLOH", p.GlobalID)
	assert.Equal(t, "Wall A", p.Name)
	assert.Equal(t, "W1", p.Tag)
	ref, ok := p.Attributes["Representation"].AsRef()
	assert.True(t, ok)
	assert.Equal(t, 23, ref)

	colour, err := m.ItemProperties(id, 40)
	require.NoError(t, err)
	blue, _ := colour.Attributes["Blue"].AsFloat()
	assert.Equal(t, 1.0, blue)
	assert.Empty(t, colour.GlobalID)

	_, err = m.ItemProperties(id, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTypeProperties(t *testing.T) {
	m, id := openHouse(t)

	types, err := m.TypeProperties(id, 60)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "IFCWINDOWTYPE", types[0].Type)
	assert.Equal(t, "Casement", types[0].Name)

	types, err = m.TypeProperties(id, 30)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestSurfaceStyleThroughStyleAssignment(t *testing.T) {
	m, id := openHouse(t)

	s, err := m.SurfaceStyle(id, 30)
	require.NoError(t, err)
	assert.Equal(t, 12, s.StyleID)
	assert.Equal(t, "Red", s.Name)
	assert.True(t, s.HasColour)
	assert.Equal(t, RGB{R: 1}, s.Colour)
	assert.True(t, s.HasTransparency)
	assert.InDelta(t, 0.75, s.Opacity(), 1e-9)
}

func TestSurfaceStyleThroughMappedItem(t *testing.T) {
	m, id := openHouse(t)

	s, err := m.SurfaceStyle(id, 50)
	require.NoError(t, err)
	assert.Equal(t, RGB{B: 1}, s.Colour)
	assert.False(t, s.HasTransparency)
	assert.Equal(t, 1.0, s.Opacity())
}

func TestSurfaceStyleMissing(t *testing.T) {
	m, id := openHouse(t)

	_, err := m.SurfaceStyle(id, 60)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.SurfaceStyle(id, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

const frostedGlass = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#11=IFCSURFACESTYLERENDERING($,0.6,$,$,$,$,$,$,.FLAT.);
#12=IFCSURFACESTYLE('Frosted',.BOTH.,(#11));
#20=IFCEXTRUDEDAREASOLID($,$,$,1.);
#21=IFCSTYLEDITEM(#20,(#12),$);
#22=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#20));
#23=IFCPRODUCTDEFINITIONSHAPE($,$,(#22));
#30=IFCPLATE('0x7Qe4Kj5BvwHhqJ1rY3sT9m',$,'Pane',$,$,$,#23,$,$);
ENDSEC;
END-ISO-10303-21;
`

func TestSurfaceStyleWithTransparencyOnly(t *testing.T) {
	m := NewManager()
	id, err := m.Open(context.Background(), "glass.ifc", strings.NewReader(frostedGlass), int64(len(frostedGlass)), nil)
	require.NoError(t, err)

	s, err := m.SurfaceStyle(id, 30)
	require.NoError(t, err)
	assert.Equal(t, "Frosted", s.Name)
	assert.False(t, s.HasColour)
	assert.True(t, s.HasTransparency)
	assert.InDelta(t, 0.4, s.Opacity(), 1e-9)
}

func TestIndexes(t *testing.T) {
	m, id := openHouse(t)

	eid, err := m.ExpressIDForGUID(id, "1xS3BCk291UvhgP2a6eflL")
	require.NoError(t, err)
	assert.Equal(t, 50, eid)
	_, err = m.ExpressIDForGUID(id, "0000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	styled, err := m.AllItemsOfType(id, "IfcStyledItem")
	require.NoError(t, err)
	assert.Equal(t, []int{21, 44}, styled)

	counts, err := m.ProductCounts(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"IFCWALL": 1, "IFCSLAB": 1}, counts)

	products, err := m.Products(id)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 50}, products)

	schema, err := m.Schema(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"IFC2X3"}, schema)
}

func TestCloseModel(t *testing.T) {
	m, id := openHouse(t)
	other, err := m.Open(context.Background(), "second.ifc", strings.NewReader(house), 0, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	m.CloseModel(id)
	assert.False(t, m.IsOpen(id))
	assert.True(t, m.IsOpen(other))
	_, err = m.ItemProperties(id, 30)
	assert.ErrorIs(t, err, ErrNotFound)

	m.CloseModel(id)
}

func TestOpenRejectsOtherSchemas(t *testing.T) {
	src := "ISO-10303-21;\nHEADER;\nFILE_SCHEMA(('AUTOMOTIVE_DESIGN'));\nENDSEC;\nDATA;\n#1=CARTESIAN_POINT('',(0.,0.,0.));\nENDSEC;\n"
	_, err := NewManager().Open(context.Background(), "part.stp", strings.NewReader(src), 0, nil)
	assert.ErrorIs(t, err, ErrNotIFC)
}
