package types

import "fmt"

// RecordType is a LIS-79 logical record type code, the first byte of every
// logical record header.
type RecordType uint8

// Logical record types defined by LIS-79.
const (
	RecordNormalData        RecordType = 0
	RecordAlternateData     RecordType = 1
	RecordJobIdentification RecordType = 32
	RecordWellsiteData      RecordType = 34
	RecordToolStringInfo    RecordType = 39
	RecordEncryptedTable    RecordType = 42
	RecordTableDump         RecordType = 47
	RecordDataFormatSpec    RecordType = 64
	RecordDataDescriptor    RecordType = 65
	RecordSoftwareBoot      RecordType = 85
	RecordBootstrapLoader   RecordType = 86
	RecordKernelLoaderBoot  RecordType = 87
	RecordProgramHeader     RecordType = 88
	RecordOverlayHeader     RecordType = 89
	RecordOverlayLoad       RecordType = 90
	RecordFileHeader        RecordType = 128
	RecordFileTrailer       RecordType = 129
	RecordTapeHeader        RecordType = 130
	RecordTapeTrailer       RecordType = 131
	RecordReelHeader        RecordType = 132
	RecordReelTrailer       RecordType = 133
	RecordLogicalEOF        RecordType = 137
	RecordLogicalBOT        RecordType = 138
	RecordLogicalEOT        RecordType = 139
	RecordLogicalEOM        RecordType = 141
	RecordOperatorCommand   RecordType = 224
	RecordOperatorResponse  RecordType = 225
	RecordSystemOutput      RecordType = 227
	RecordFLICComment       RecordType = 232
	RecordBlankComment      RecordType = 234
)

// RecordClass groups record types by how the index treats them.
type RecordClass uint8

const (
	// ClassUnhandled is any code outside the LIS-79 set.
	ClassUnhandled RecordClass = iota
	// ClassData are the two IFLR codes carrying frames.
	ClassData
	// ClassDescriptor is the data format specification record.
	ClassDescriptor
	// ClassDelimiter are header, trailer and logical tape mark records.
	ClassDelimiter
	// ClassTable are component-block tables named by their first component.
	ClassTable
	// ClassOpaque are records kept by position only and decoded on demand.
	ClassOpaque
)

func (c RecordClass) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassDescriptor:
		return "descriptor"
	case ClassDelimiter:
		return "delimiter"
	case ClassTable:
		return "table"
	case ClassOpaque:
		return "opaque"
	default:
		return "unhandled"
	}
}

// Class returns how records of type t are indexed.
func (t RecordType) Class() RecordClass {
	switch t {
	case RecordNormalData, RecordAlternateData:
		return ClassData
	case RecordDataFormatSpec:
		return ClassDescriptor
	case RecordFileHeader, RecordFileTrailer,
		RecordTapeHeader, RecordTapeTrailer,
		RecordReelHeader, RecordReelTrailer,
		RecordLogicalEOF, RecordLogicalBOT, RecordLogicalEOT, RecordLogicalEOM:
		return ClassDelimiter
	case RecordWellsiteData, RecordToolStringInfo, RecordEncryptedTable, RecordTableDump:
		return ClassTable
	case RecordJobIdentification, RecordDataDescriptor,
		RecordSoftwareBoot, RecordBootstrapLoader, RecordKernelLoaderBoot,
		RecordProgramHeader, RecordOverlayHeader, RecordOverlayLoad,
		RecordOperatorCommand, RecordOperatorResponse, RecordSystemOutput,
		RecordFLICComment, RecordBlankComment:
		return ClassOpaque
	default:
		return ClassUnhandled
	}
}

// IsHeader reports whether t is a file, tape or reel header or trailer,
// the records whose payload carries fixed identifying fields.
func (t RecordType) IsHeader() bool {
	return t >= RecordFileHeader && t <= RecordReelTrailer
}

var recordNames = map[RecordType]string{
	RecordNormalData:        "normal data",
	RecordAlternateData:     "alternate data",
	RecordJobIdentification: "job identification",
	RecordWellsiteData:      "wellsite data",
	RecordToolStringInfo:    "tool string info",
	RecordEncryptedTable:    "encrypted table dump",
	RecordTableDump:         "table dump",
	RecordDataFormatSpec:    "data format specification",
	RecordDataDescriptor:    "data descriptor",
	RecordSoftwareBoot:      "TU10 software boot",
	RecordBootstrapLoader:   "bootstrap loader",
	RecordKernelLoaderBoot:  "CP-kernel loader boot",
	RecordProgramHeader:     "program file header",
	RecordOverlayHeader:     "program overlay header",
	RecordOverlayLoad:       "program overlay load",
	RecordFileHeader:        "file header",
	RecordFileTrailer:       "file trailer",
	RecordTapeHeader:        "tape header",
	RecordTapeTrailer:       "tape trailer",
	RecordReelHeader:        "reel header",
	RecordReelTrailer:       "reel trailer",
	RecordLogicalEOF:        "logical EOF",
	RecordLogicalBOT:        "logical BOT",
	RecordLogicalEOT:        "logical EOT",
	RecordLogicalEOM:        "logical EOM",
	RecordOperatorCommand:   "operator command inputs",
	RecordOperatorResponse:  "operator response inputs",
	RecordSystemOutput:      "system outputs to operator",
	RecordFLICComment:       "FLIC comment",
	RecordBlankComment:      "blank record/CSU comment",
}

func (t RecordType) String() string {
	if name, ok := recordNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type %d", uint8(t))
}

// Known reports whether t is one of the LIS-79 record types.
func (t RecordType) Known() bool {
	_, ok := recordNames[t]
	return ok
}

// RecordTypes returns every defined record type in ascending order.
func RecordTypes() []RecordType {
	out := make([]RecordType, 0, len(recordNames))
	for i := 0; i < 256; i++ {
		if t := RecordType(i); t.Known() {
			out = append(out, t)
		}
	}
	return out
}
