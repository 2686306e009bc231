package main

import (
	"encoding/json"
	"fmt"
	"log"
)

// Most commands need this, so... yeah
func PrintJson(obj interface{}) {
	rawjson, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		log.Fatalln("Couldn't serialize json: ", err)
	}
	fmt.Fprintln(stdout, string(rawjson))
}

// Quick way to fail on error, since every command is just a straight line
// of steps
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}
