package xprefix_test

import (
	"bytes"
	"fmt"

	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
)

func ExampleNew() {
	var buf bytes.Buffer
	w := xprefix.New(&buf, xprefix.WithPrefix("worker-1"))

	_ = w.WriteText("starting")
	_ = w.WriteText(" job 42\n")
	_ = w.WriteText("done\n")

	fmt.Print(buf.String())
	// Output:
	// worker-1 | starting job 42
	// worker-1 | done
}

func ExampleNew_nested() {
	var buf bytes.Buffer
	service := xprefix.New(&buf, xprefix.WithPrefix("api"))
	request := xprefix.New(service, xprefix.WithPrefix("req-7"))

	_ = request.WriteText("GET /health\n")

	fmt.Print(buf.String())
	// Output:
	// api | req-7 | GET /health
}

func ExampleWriter_WriteBlocks() {
	var buf bytes.Buffer
	w := xprefix.New(&buf, xprefix.WithSeparator(" ; "))

	_ = w.WriteBlocks("GET", "/users", "200")

	fmt.Println(buf.String())
	// Output: GET ; /users ; 200
}
