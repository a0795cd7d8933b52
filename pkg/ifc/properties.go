package ifc

import (
	"fmt"

	"github.com/philipparndt/goifc/pkg/step"
)

// attribute positions shared by every IfcProduct subtype
const (
	rootGlobalID          = 0
	rootName              = 2
	rootDescription       = 3
	objectType            = 4
	productRepresentation = 6
	elementTag            = 7
)

var rootAttributes = []string{"GlobalId", "OwnerHistory", "Name", "Description"}

var productAttributes = []string{
	"GlobalId", "OwnerHistory", "Name", "Description",
	"ObjectType", "ObjectPlacement", "Representation", "Tag",
}

var typeObjectAttributes = []string{
	"GlobalId", "OwnerHistory", "Name", "Description",
	"ApplicableOccurrence", "HasPropertySets", "RepresentationMaps", "Tag", "ElementType",
}

// attribute names of the non-rooted entities the style walk touches
var attributeNames = map[string][]string{
	"IFCSTYLEDITEM":                  {"Item", "Styles", "Name"},
	"IFCPRESENTATIONSTYLEASSIGNMENT": {"Styles"},
	"IFCSURFACESTYLE":                {"Name", "Side", "Styles"},
	"IFCSURFACESTYLERENDERING": {
		"SurfaceColour", "Transparency", "DiffuseColour", "TransmissionColour",
		"DiffuseTransmissionColour", "ReflectionColour", "SpecularColour",
		"SpecularHighlight", "ReflectanceMethod",
	},
	"IFCSURFACESTYLESHADING":    {"SurfaceColour", "Transparency"},
	"IFCCOLOURRGB":              {"Name", "Red", "Green", "Blue"},
	"IFCPRODUCTDEFINITIONSHAPE": {"Name", "Description", "Representations"},
	"IFCSHAPEREPRESENTATION":    {"ContextOfItems", "RepresentationIdentifier", "RepresentationType", "Items"},
	"IFCMAPPEDITEM":             {"MappingSource", "MappingTarget"},
	"IFCREPRESENTATIONMAP":      {"MappingOrigin", "MappedRepresentation"},
	"IFCPROPERTYSINGLEVALUE":    {"Name", "Description", "NominalValue", "Unit"},
	"IFCRELDEFINESBYTYPE":       {"GlobalId", "OwnerHistory", "Name", "Description", "RelatedObjects", "RelatingType"},
}

// Properties is the attribute view of one entity instance
type Properties struct {
	ExpressID   int
	Type        string
	GlobalID    string
	Name        string
	Description string
	ObjectType  string
	Tag         string
	Attributes  map[string]step.Value
	Args        []step.Value
}

// ItemProperties returns the attributes of an element
func (m *Manager) ItemProperties(modelID, expressID int) (*Properties, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	r, ok := md.file.Record(expressID)
	if !ok {
		return nil, fmt.Errorf("element #%d in model %d: %w", expressID, modelID, ErrNotFound)
	}
	return md.properties(r), nil
}

// TypeProperties returns the type objects assigned to an element through IfcRelDefinesByType
func (m *Manager) TypeProperties(modelID, expressID int) ([]*Properties, error) {
	md, err := m.model(modelID)
	if err != nil {
		return nil, err
	}
	if _, ok := md.file.Record(expressID); !ok {
		return nil, fmt.Errorf("element #%d in model %d: %w", expressID, modelID, ErrNotFound)
	}
	var out []*Properties
	for _, id := range md.typeOf[expressID] {
		if r, ok := md.file.Record(id); ok {
			out = append(out, md.properties(r))
		}
	}
	return out, nil
}

func (md *model) properties(r *step.Record) *Properties {
	p := &Properties{
		ExpressID:  r.ID,
		Type:       r.Type,
		Args:       r.Args,
		Attributes: make(map[string]step.Value, len(r.Args)),
	}

	names := md.attributeNamesFor(r)
	for i, v := range r.Args {
		if i < len(names) {
			p.Attributes[names[i]] = v
		}
	}

	if _, rooted := md.guids[mustString(r.Arg(rootGlobalID))]; rooted {
		p.GlobalID = mustString(r.Arg(rootGlobalID))
		p.Name = mustString(r.Arg(rootName))
		p.Description = mustString(r.Arg(rootDescription))
		if md.isProduct(r) {
			p.ObjectType = mustString(r.Arg(objectType))
			p.Tag = mustString(r.Arg(elementTag))
		}
	}
	return p
}

func (md *model) attributeNamesFor(r *step.Record) []string {
	if names, ok := attributeNames[r.Type]; ok {
		return names
	}
	if _, rooted := md.guids[mustString(r.Arg(rootGlobalID))]; !rooted {
		return nil
	}
	switch {
	case md.isProduct(r):
		return productAttributes
	case len(r.Type) > 4 && r.Type[len(r.Type)-4:] == "TYPE":
		return typeObjectAttributes
	}
	return rootAttributes
}
