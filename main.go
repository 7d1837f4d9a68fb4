package main

import (
	"github.com/quill-ai/quill/cmd"
	"github.com/quill-ai/quill/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", nil)
	cmd.Execute()
}
