package intent

import "fmt"

// Kind is the closed set of command categories. Its tag is the only string
// form used across the assistant (action types, logs, metric labels).
type Kind uint8

const (
	OpenApplication Kind = iota + 1
	SearchWeb
	SystemControl
	MediaControl
	Information
	Greeting
	Exit
)

var kindTags = map[Kind]string{
	OpenApplication: "open_application",
	SearchWeb:       "search_web",
	SystemControl:   "system_control",
	MediaControl:    "media_control",
	Information:     "information",
	Greeting:        "greeting",
	Exit:            "exit",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{OpenApplication, SearchWeb, SystemControl, MediaControl, Information, Greeting, Exit}
}

func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) Valid() bool {
	_, ok := kindTags[k]
	return ok
}

// ParseKind maps a tag such as "search_web" back to its kind.
func ParseKind(tag string) (Kind, error) {
	for k, t := range kindTags {
		if t == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown intent kind %q", tag)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid intent kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
