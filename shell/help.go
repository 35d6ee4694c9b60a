package shell

import (
	"embed"
	"fmt"
)

//go:embed helptext
var helpText embed.FS

func usage(mode string) (*Response, error) {
	dat, err := helpText.ReadFile("helptext/usage-" + mode + ".txt")
	if err != nil {
		return nil, fmt.Errorf("loading helptext: %w", err)
	}
	return msg(string(dat)), nil
}

func usageTopic(topic string) (*Response, error) {
	dat, err := helpText.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return nil, fmt.Errorf("there is no help text for the topic %v", topic)
	}
	return msg(string(dat)), nil
}
