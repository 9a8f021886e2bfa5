package main

import "github.com/ferat8/sui/components/app"

func main() {
	app.App().Run()
}
