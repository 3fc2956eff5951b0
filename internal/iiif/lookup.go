package iiif

import "fmt"

// LookupTable classifies MARC tags as title, description or generic
// metadata. It is immutable once built and safe for concurrent use.
type LookupTable struct {
	titleTags       map[string]struct{}
	descriptionTags map[string]struct{}
	labels          map[string]string
}

// NewLookupTable builds a table from the given tag sets. A tag may belong to
// only one of the three classes.
func NewLookupTable(titleTags, descriptionTags []string, labels map[string]string) (*LookupTable, error) {
	t := &LookupTable{
		titleTags:       make(map[string]struct{}, len(titleTags)),
		descriptionTags: make(map[string]struct{}, len(descriptionTags)),
		labels:          make(map[string]string, len(labels)),
	}

	for tag, label := range labels {
		t.labels[tag] = label
	}
	for _, tag := range titleTags {
		if _, ok := t.labels[tag]; ok {
			return nil, fmt.Errorf("tag %s is both a title tag and a generic metadata tag", tag)
		}
		t.titleTags[tag] = struct{}{}
	}
	for _, tag := range descriptionTags {
		if _, ok := t.labels[tag]; ok {
			return nil, fmt.Errorf("tag %s is both a description tag and a generic metadata tag", tag)
		}
		if _, ok := t.titleTags[tag]; ok {
			return nil, fmt.Errorf("tag %s is both a title tag and a description tag", tag)
		}
		t.descriptionTags[tag] = struct{}{}
	}

	return t, nil
}

// IsTitleTag reports whether tag can supply the manifest label
func (t *LookupTable) IsTitleTag(tag string) bool {
	_, ok := t.titleTags[tag]
	return ok
}

// IsDescriptionTag reports whether tag can supply the manifest description
func (t *LookupTable) IsDescriptionTag(tag string) bool {
	_, ok := t.descriptionTags[tag]
	return ok
}

// LabelFor returns the generic metadata label for tag
func (t *LookupTable) LabelFor(tag string) (string, bool) {
	label, ok := t.labels[tag]
	return label, ok
}

// DefaultLookup is the process-wide MARC 21 table
var DefaultLookup = mustLookupTable(DefaultTitleTags, DefaultDescriptionTags, DefaultLabels)

func mustLookupTable(titleTags, descriptionTags []string, labels map[string]string) *LookupTable {
	t, err := NewLookupTable(titleTags, descriptionTags, labels)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTitleTags are tried, in record order, for the manifest label
var DefaultTitleTags = []string{
	"245", // Title Statement
	"246", // Varying Form of Title
}

// DefaultDescriptionTags are tried, in record order, for the manifest description
var DefaultDescriptionTags = []string{
	"300", // Physical Description
	"520", // Summary, Etc.
}

// ElectronicLocationLabel is the generic label whose value may carry the
// object's persistent identifier
const ElectronicLocationLabel = "Electronic Location and Access"

// DefaultLabels maps generic metadata tags to their display labels
var DefaultLabels = map[string]string{
	"250": "Edition Statement",
	"254": "Musical Presentation Statement",
	"255": "Cartographic Mathematical Data",
	"256": "Computer File Characteristics",
	"257": "Country of Producing Entity",
	"258": "Philatelic Issue Data",
	"260": "Publication, Distribution, etc. (Imprint)",
	"263": "Projected Publication Date",
	"264": "Production, Publication, Distribution, Manufacture, and Copyright Notice",
	"270": "Address",
	"600": "Subject Added Entry - Personal Name",
	"610": "Subject Added Entry - Corporate Name",
	"611": "Subject Added Entry - Meeting Name",
	"630": "Subject Added Entry - Uniform Title",
	"647": "Subject Added Entry - Named Event",
	"648": "Subject Added Entry - Chronological Term",
	"650": "Subject Added Entry - Topical Term",
	"651": "Subject Added Entry - Geographic Name",
	"653": "Index Term - Uncontrolled",
	"654": "Subject Added Entry - Faceted Topical Term",
	"655": "Index Term - Genre/Form",
	"656": "Index Term - Occupation",
	"657": "Index Term - Function",
	"658": "Index Term - Curriculum Objective",
	"662": "Subject Added Entry - Hierarchical Place Name",
	"690": "Local Subject",
	"691": "Local Subject",
	"692": "Local Subject",
	"693": "Local Subject",
	"694": "Local Subject",
	"695": "Local Subject",
	"696": "Local Subject",
	"697": "Local Subject",
	"698": "Local Subject",
	"699": "Local Subject",
	"700": "Added Entry - Personal Name",
	"710": "Added Entry - Corporate Name",
	"711": "Added Entry - Meeting Name",
	"720": "Added Entry - Uncontrolled Name",
	"730": "Added Entry - Uniform Title",
	"740": "Added Entry - Uncontrolled Related/Analytical Title",
	"751": "Added Entry - Geographic Name",
	"752": "Added Entry - Hierarchical Place Name",
	"753": "System Details Access to Computer Files",
	"754": "Added Entry - Taxonomic Identification",
	"758": "Resource Identifier",
	"760": "Main Series Entry",
	"762": "Subseries Entry",
	"765": "Original Language Entry",
	"767": "Translation Entry",
	"770": "Supplement/Special Issue Entry",
	"772": "Supplement Parent Entry",
	"773": "Host Item Entry",
	"774": "Constituent Unit Entry",
	"775": "Other Edition Entry",
	"776": "Additional Physical Form Entry",
	"777": "Issued With Entry",
	"780": "Preceding Entry",
	"785": "Succeeding Entry",
	"786": "Data Source Entry",
	"787": "Other Relationship Entry",
	"800": "Series Added Entry - Personal Name",
	"810": "Series Added Entry - Corporate Name",
	"811": "Series Added Entry - Meeting Name",
	"830": "Series Added Entry - Uniform Title",
	"841": "Holdings Coded Data Values",
	"842": "Textual Physical Form Designator",
	"843": "Reproduction Note",
	"844": "Name of Unit",
	"845": "Terms Governing Use and Reproduction",
	"850": "Holding Institution",
	"852": "Location",
	"853": "Captions and Pattern - Basic Bibliographic Unit",
	"854": "Captions and Pattern - Supplementary Material",
	"855": "Captions and Pattern - Indexes",
	"856": ElectronicLocationLabel,
	"863": "Enumeration and Chronology - Basic Bibliographic Unit",
	"864": "Enumeration and Chronology - Supplementary Material",
	"865": "Enumeration and Chronology - Indexes",
	"866": "Textual Holdings - Basic Bibliographic Unit",
	"867": "Textual Holdings - Supplementary Material",
	"868": "Textual Holdings - Indexes",
}
