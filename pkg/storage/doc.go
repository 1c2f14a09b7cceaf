// Package storage writes export files and downloaded images into a single
// output directory.
//
// Every write goes through a temporary file followed by a rename, so readers
// never observe a half-written export. The Manager keeps an index of the
// names present in the directory, which the downloader uses to skip images
// fetched by an earlier run.
//
//	manager, err := storage.NewManager("exports")
//	if err != nil {
//	    return err
//	}
//	path, err := manager.WriteJSON("jack_tweets.json", tweets)
package storage
