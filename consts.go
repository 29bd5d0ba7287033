package lasercode

// SVG names shared by the reader and the writer
const (
	// Namespace of both the source and the output documents
	SVGNamespace = "http://www.w3.org/2000/svg"

	// Id of the group holding the bars in the source document
	DefaultGroupID = "barcode_group"

	rectTag = "rect"
	lineTag = "line"

	// Stroke colour of every emitted line, black in percent notation
	strokeColor = "rgb(0%,0%,0%)"
)

// Target geometry defaults, millimeters
const (
	DefaultWidth  = 45.0
	DefaultHeight = 16.0
	DefaultPadX   = 5.0
	DefaultPadY   = 5.0

	// Rendered stroke of one line, px
	DefaultStrokeWidth = 0.1

	// Narrowest bar the symbol source produces
	DefaultModuleWidth = 0.2

	DefaultThinLines  = 1
	DefaultThickLines = 4
)

// Layout of generated source documents, millimeters
const (
	quietZone    = 6.5
	marginTop    = 1.0
	moduleHeight = 15.0
)
