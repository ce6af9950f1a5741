package main

import (
	"encoding/json"
	"fmt"
	"io"
)

type outputMode struct {
	w io.Writer
}

func (o outputMode) printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	_, err = fmt.Fprintln(o.w, string(data))
	return err
}

func (o outputMode) printError(err error) {
	_ = o.printJSON(map[string]string{"error": err.Error()})
}

// envelope is the success document of mutating commands.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}
