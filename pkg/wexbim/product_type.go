package wexbim

import "fmt"

// ProductType classifies a product. Values follow the IFC entity type
// identifiers written by the geometry exporter.
type ProductType uint16

// Known product types. Containers may carry other values; they are kept
// as-is and only reported as unknown by String.
const (
	TypeUnknown              ProductType = 0
	TypeDoor                 ProductType = 91
	TypeSlab                 ProductType = 99
	TypeBeam                 ProductType = 171
	TypeFurnishingElement    ProductType = 253
	TypeMember               ProductType = 310
	TypeStair                ProductType = 346
	TypeRoof                 ProductType = 347
	TypeRailing              ProductType = 350
	TypePlate                ProductType = 351
	TypeCovering             ProductType = 382
	TypeColumn               ProductType = 383
	TypeWall                 ProductType = 452
	TypeWallStandardCase     ProductType = 453
	TypeOpeningElement       ProductType = 498
	TypeBuildingElementProxy ProductType = 560
	TypeWindow               ProductType = 667
	TypeSite                 ProductType = 700
	TypeFlowTerminal         ProductType = 1092
	TypeSpace                ProductType = 3602
)

var productTypeNames = map[ProductType]string{
	TypeUnknown:              "Unknown",
	TypeDoor:                 "IfcDoor",
	TypeSlab:                 "IfcSlab",
	TypeBeam:                 "IfcBeam",
	TypeFurnishingElement:    "IfcFurnishingElement",
	TypeMember:               "IfcMember",
	TypeStair:                "IfcStair",
	TypeRoof:                 "IfcRoof",
	TypeRailing:              "IfcRailing",
	TypePlate:                "IfcPlate",
	TypeCovering:             "IfcCovering",
	TypeColumn:               "IfcColumn",
	TypeWall:                 "IfcWall",
	TypeWallStandardCase:     "IfcWallStandardCase",
	TypeOpeningElement:       "IfcOpeningElement",
	TypeBuildingElementProxy: "IfcBuildingElementProxy",
	TypeWindow:               "IfcWindow",
	TypeSite:                 "IfcSite",
	TypeFlowTerminal:         "IfcFlowTerminal",
	TypeSpace:                "IfcSpace",
}

// String returns the IFC entity name.
func (t ProductType) String() string {
	if name, ok := productTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}
