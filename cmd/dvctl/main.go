// Command dvctl drives the dual-view row cache from the command line: it
// builds tree and list views over the filesystem or a SQLite node tree and
// prints what they materialize.
package main

func main() {
	execute()
}
