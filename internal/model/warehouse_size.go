package model

// WarehouseSize is a warehouse compute size as presented to operators.
// Snowpark-optimized variants share the size token of their standard
// counterpart but run on the SNOWPARK-OPTIMIZED warehouse type.
type WarehouseSize string

const (
	SizeXSmall  WarehouseSize = "X-Small"
	SizeSmall   WarehouseSize = "Small"
	SizeMedium  WarehouseSize = "Medium"
	SizeLarge   WarehouseSize = "Large"
	SizeXLarge  WarehouseSize = "X-Large"
	Size2XLarge WarehouseSize = "2X-Large"
	Size3XLarge WarehouseSize = "3X-Large"
	Size4XLarge WarehouseSize = "4X-Large"
	Size5XLarge WarehouseSize = "5X-Large"
	Size6XLarge WarehouseSize = "6X-Large"

	SizeMediumSnowpark  WarehouseSize = "Medium Snowpark"
	SizeLargeSnowpark   WarehouseSize = "Large Snowpark"
	SizeXLargeSnowpark  WarehouseSize = "X-Large Snowpark"
	Size2XLargeSnowpark WarehouseSize = "2X-Large Snowpark"
	Size3XLargeSnowpark WarehouseSize = "3X-Large Snowpark"
	Size4XLargeSnowpark WarehouseSize = "4X-Large Snowpark"
)

var warehouseSizeCommands = map[WarehouseSize]string{
	SizeXSmall:          "XSMALL",
	SizeSmall:           "SMALL",
	SizeMedium:          "MEDIUM",
	SizeLarge:           "LARGE",
	SizeXLarge:          "XLARGE",
	Size2XLarge:         "XXLARGE",
	Size3XLarge:         "XXXLARGE",
	Size4XLarge:         "X4LARGE",
	Size5XLarge:         "X5LARGE",
	Size6XLarge:         "X6LARGE",
	SizeMediumSnowpark:  "MEDIUM",
	SizeLargeSnowpark:   "LARGE",
	SizeXLargeSnowpark:  "XLARGE",
	Size2XLargeSnowpark: "XXLARGE",
	Size3XLargeSnowpark: "XXXLARGE",
	Size4XLargeSnowpark: "X4LARGE",
}

// WarehouseSizes lists every allowed size in display order.
var WarehouseSizes = []WarehouseSize{
	SizeXSmall, SizeSmall, SizeMedium, SizeLarge, SizeXLarge,
	Size2XLarge, Size3XLarge, Size4XLarge, Size5XLarge, Size6XLarge,
	SizeMediumSnowpark, SizeLargeSnowpark, SizeXLargeSnowpark,
	Size2XLargeSnowpark, Size3XLargeSnowpark, Size4XLargeSnowpark,
}

// Valid reports whether s is one of the allowed sizes.
func (s WarehouseSize) Valid() bool {
	_, ok := warehouseSizeCommands[s]
	return ok
}

// Command returns the size token used in alter warehouse statements.
func (s WarehouseSize) Command() string {
	return warehouseSizeCommands[s]
}

// Snowpark reports whether the size belongs to the Snowpark-optimized family.
func (s WarehouseSize) Snowpark() bool {
	switch s {
	case SizeMediumSnowpark, SizeLargeSnowpark, SizeXLargeSnowpark,
		Size2XLargeSnowpark, Size3XLargeSnowpark, Size4XLargeSnowpark:
		return true
	}
	return false
}
