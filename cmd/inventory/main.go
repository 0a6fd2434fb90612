// Inventory - cloud resource inventory
// Discover. Store. Reconcile.
package main

func main() {
	Execute()
}
