package disasm

import "fmt"

// Errno is an engine error code. Call sites wrap it with context, so callers
// should compare with errors.Is.
type Errno int

const (
	ErrOK        Errno = iota // No error: everything was fine
	ErrMem                    // Out-of-memory error
	ErrArch                   // Unsupported architecture
	ErrHandle                 // Invalid handle: closed or never opened
	ErrCsh                    // Invalid handle argument (nil handle)
	ErrMode                   // Invalid/unsupported mode
	ErrOption                 // Invalid/unsupported option
	ErrDetail                 // Information is unavailable because detail option is OFF
	ErrMemSetup               // Dynamic memory management uninitialized
	ErrVersion                // Unsupported version
	ErrDiet                   // Access irrelevant data in "diet" engine
	ErrUnknownID              // Register, instruction or group id out of range
)

var errnoText = [...]string{
	ErrOK:        "OK (CS_ERR_OK)",
	ErrMem:       "Out of memory (CS_ERR_MEM)",
	ErrArch:      "Invalid/unsupported architecture (CS_ERR_ARCH)",
	ErrHandle:    "Invalid handle (CS_ERR_HANDLE)",
	ErrCsh:       "Invalid csh (CS_ERR_CSH)",
	ErrMode:      "Invalid mode (CS_ERR_MODE)",
	ErrOption:    "Invalid option (CS_ERR_OPTION)",
	ErrDetail:    "Details are unavailable (CS_ERR_DETAIL)",
	ErrMemSetup:  "Dynamic memory management uninitialized (CS_ERR_MEMSETUP)",
	ErrVersion:   "Different API version between core & binding (CS_ERR_VERSION)",
	ErrDiet:      "Information irrelevant in diet engine (CS_ERR_DIET)",
	ErrUnknownID: "Unknown register, instruction or group id",
}

func (e Errno) Error() string {
	if e >= 0 && int(e) < len(errnoText) {
		return errnoText[e]
	}
	return fmt.Sprintf("Internal Error: No Error string for Errno %d", int(e))
}
