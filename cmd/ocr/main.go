package main

import "github.com/qduc/easyocr-go/cmd/ocr/cmd"

func main() {
	cmd.Execute()
}
