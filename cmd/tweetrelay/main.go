// Command tweetrelay serves and consumes server-sent tweet streams.
package main

func main() {
	Execute()
}
