package hal

import "fmt"

// RegAddress represents chip register address
type RegAddress uint8

// Access declares whether the host may write a register
type Access int

const (
	AccessReadOnly Access = iota
	AccessReadWrite
)

func (obj Access) String() string {
	if obj == AccessReadWrite {
		return "RW"
	}
	return "RO"
}

// Provenance records where a register definition comes from. Some registers
// are not in the vendor datasheet and were mapped by the community, their
// semantics should be treated as best effort.
type Provenance int

const (
	SourceDatasheet Provenance = iota
	SourceCommunity
)

func (obj Provenance) String() string {
	if obj == SourceCommunity {
		return "community"
	}
	return "datasheet"
}

// Field is a named bit range inside a register
type Field struct {
	Name   string
	Offset uint8
	Width  uint8
}

// Mask returns the field mask already shifted to the field position
func (obj Field) Mask() uint16 {
	return uint16((uint32(1)<<obj.Width - 1) << obj.Offset)
}

// Descriptor is the static definition of one chip register. A register map is
// a slice of these, device drivers run all register traffic through the
// descriptor so that width, access mode and value masking are enforced in one
// place instead of in per register code.
type Descriptor struct {
	Name      string
	Address   RegAddress
	Bits      uint8            // meaningful storage width, storage is byte aligned
	ValueBits uint8            // width of the plain value at bit 0, zero for field structured registers
	Access    Access
	Reset     uint16           // value after hardware reset
	Source    Provenance
	Overlaps  bool             // virtual register sharing storage with byte registers
	Fields    []Field          // named flags for field structured registers
	Enum      map[uint8]string // known values, nil when the full range is meaningful
}

// Size returns the storage size in bytes
func (obj Descriptor) Size() int {
	return int(obj.Bits+7) / 8
}

// ValueMask returns the mask that isolates the meaningful value bits of a
// raw storage read
func (obj Descriptor) ValueMask() uint16 {
	bits := obj.ValueBits
	if bits == 0 {
		bits = obj.Bits
	}
	return uint16(uint32(1)<<bits - 1)
}

// Validate checks that the descriptor is internally consistent: storage fits
// two bytes, the value width fits the storage and declared fields do not
// overlap each other or leak outside the storage width.
func (obj Descriptor) Validate() error {
	if obj.Name == "" {
		return fmt.Errorf("failed to validate register 0x%02X, name is empty: %w", uint8(obj.Address), ErrValidation)
	}
	if obj.Bits < 1 || obj.Bits > 16 {
		return fmt.Errorf("failed to validate %s register, width %d bits is not storable: %w", obj.Name, obj.Bits, ErrValidation)
	}
	if obj.ValueBits > obj.Bits {
		return fmt.Errorf("failed to validate %s register, value width %d exceeds storage width %d: %w", obj.Name, obj.ValueBits, obj.Bits, ErrValidation)
	}
	if len(obj.Fields) > 0 && obj.ValueBits != 0 {
		return fmt.Errorf("failed to validate %s register, plain value and named fields are exclusive: %w", obj.Name, ErrValidation)
	}
	var used uint16
	for _, field := range obj.Fields {
		if field.Width == 0 || uint16(field.Offset)+uint16(field.Width) > uint16(obj.Bits) {
			return fmt.Errorf("failed to validate %s register, field %s does not fit %d bits: %w", obj.Name, field.Name, obj.Bits, ErrValidation)
		}
		if used&field.Mask() != 0 {
			return fmt.Errorf("failed to validate %s register, field %s overlaps another field: %w", obj.Name, field.Name, ErrValidation)
		}
		used |= field.Mask()
	}
	return nil
}

// Field looks up a named field
func (obj Descriptor) Field(name string) (Field, bool) {
	for _, field := range obj.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Pack assembles a register value from named field values. Bits of fields
// that are not listed stay zero.
func (obj Descriptor) Pack(values map[string]uint16) (uint16, error) {
	var packed uint16
	for name, value := range values {
		field, ok := obj.Field(name)
		if !ok {
			return 0, fmt.Errorf("failed to pack %s register, unknown field %s: %w", obj.Name, name, ErrValidation)
		}
		if value > uint16(uint32(1)<<field.Width-1) {
			return 0, fmt.Errorf("failed to pack %s register, value %d does not fit field %s: %w", obj.Name, value, name, ErrValidation)
		}
		packed |= value << field.Offset
	}
	return packed, nil
}

// Extract isolates a named field from a raw register value
func (obj Descriptor) Extract(raw uint16, name string) (uint16, error) {
	field, ok := obj.Field(name)
	if !ok {
		return 0, fmt.Errorf("failed to extract unknown field %s from %s register: %w", name, obj.Name, ErrValidation)
	}
	return (raw & field.Mask()) >> field.Offset, nil
}
