package main

import (
	"go.uber.org/fx"

	foodrecipe "github.com/eko2okna/food-recipe-app"
)

func main() {
	appOpts := foodrecipe.BuildAppOpts()
	serverOpts := foodrecipe.BuildServerOpts()

	allOpts := append(appOpts, serverOpts...)

	fx.New(allOpts...).Run()
}
