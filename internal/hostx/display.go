package hostx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DisplayName is a parsed X display string of the form
// [protocol/][host]:display[.screen], or a socket path followed by
// :display[.screen].
type DisplayName struct {
	Raw      string
	Protocol string
	Host     string
	Socket   string
	Display  int
	Screen   int
}

func (d DisplayName) String() string {
	return d.Raw
}

// ParseDisplay parses name. An empty name falls back to $DISPLAY.
func ParseDisplay(name string) (DisplayName, error) {
	if name == "" {
		name = os.Getenv("DISPLAY")
	}
	d := DisplayName{Raw: name}
	if name == "" {
		return d, fmt.Errorf("empty display name and $DISPLAY unset")
	}

	colon := strings.LastIndex(name, ":")
	if colon < 0 {
		return d, fmt.Errorf("missing ':' in %q", name)
	}
	if name[0] == '/' {
		d.Socket = name[:colon]
	} else if slash := strings.LastIndex(name[:colon], "/"); slash >= 0 {
		d.Protocol = name[:slash]
		d.Host = name[slash+1 : colon]
	} else {
		d.Host = name[:colon]
	}

	rest := name[colon+1:]
	num, scr := rest, ""
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		num, scr = rest[:dot], rest[dot+1:]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return d, fmt.Errorf("bad display number %q in %q", num, name)
	}
	d.Display = n
	if scr != "" {
		s, err := strconv.Atoi(scr)
		if err != nil || s < 0 {
			return d, fmt.Errorf("bad screen number %q in %q", scr, name)
		}
		d.Screen = s
	}
	return d, nil
}
