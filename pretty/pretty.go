// Package pretty prints reports and lock listings as indented json.
package pretty

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// Write marshals object and writes it indented, followed by a newline.
func Write(writer io.Writer, object interface{}) error {
	return write(writer, object, false)
}

// WriteColor is Write with terminal colors.
func WriteColor(writer io.Writer, object interface{}) error {
	return write(writer, object, true)
}

func write(writer io.Writer, object interface{}, color bool) error {
	objectString, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", object, err)
	}
	out := pretty.Pretty(objectString)
	if color {
		out = pretty.Color(out, nil)
	}
	_, err = writer.Write(out)
	return err
}

// String returns the indented json of object, or the marshal error text.
func String(object interface{}) string {
	var buf bytes.Buffer
	err := Write(&buf, object)
	if err != nil {
		return err.Error()
	}
	return buf.String()
}
