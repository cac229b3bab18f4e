// provgate is the Archon provider administration service.
package main

func main() {
	Execute()
}
