package main

import "dwitter/web"

func main() {
	web.RunApp()
}
