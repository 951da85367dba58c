package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Загрузка проекта (.sb3 / project.json)
	LoadInfo           Code = 1000
	LoadMalformed      Code = 1001
	LoadMissingProject Code = 1002
	LoadNoTargets      Code = 1003

	// Линеаризация
	LowInfo              Code = 2000
	LowUnsupportedOpcode Code = 2001
	LowUnknownVariable   Code = 2002
	LowMissingField      Code = 2003
	LowMissingInput      Code = 2004
	LowDanglingBlock     Code = 2005
	LowNoStage           Code = 2006
	LowCounterOverflow   Code = 2007
	LowNameCollision     Code = 2008
	LowBlockReused       Code = 2009

	// Эмиссия C
	EmitInfo    Code = 3000
	EmitFailure Code = 3001

	// Проект и окружение
	ProjInfo            Code = 4000
	ProjManifestInvalid Code = 4001
	ProjWriteFailed     Code = 4002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		LoadInfo:             "Project load information",
		LoadMalformed:        "Malformed project document",
		LoadMissingProject:   "Archive has no project.json",
		LoadNoTargets:        "Project has no targets",
		LowInfo:              "Lowering information",
		LowUnsupportedOpcode: "Unsupported opcode",
		LowUnknownVariable:   "Variable not found in sprite or stage scope",
		LowMissingField:      "Block is missing a required field",
		LowMissingInput:      "Block is missing a required input",
		LowDanglingBlock:     "Reference to a block that does not exist",
		LowNoStage:           "Project has no stage target",
		LowCounterOverflow:   "Name counter overflow",
		LowNameCollision:     "Distinct names map to the same identifier",
		LowBlockReused:       "Block is linked from more than one place",
		EmitInfo:             "Emission information",
		EmitFailure:          "Failed to emit C source",
		ProjInfo:             "Project information",
		ProjManifestInvalid:  "Invalid scratchc.toml",
		ProjWriteFailed:      "Failed to write output",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LOAD%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EMIT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
