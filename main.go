package main

import (
	"os"

	"inkwell/service"
)

func main() {
	service.Execute(os.Args[1:])
}
