package realtime

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"

	"campusmarket/internal/chatsync"
)

// FirestoreChangeFeed watches a conversation's messages subcollection through
// Firestore snapshot listeners. It backs up the WebSocket path: a viewer that
// missed a broadcast still learns the durable store changed.
type FirestoreChangeFeed struct {
	client *firestore.Client
}

func NewFirestoreChangeFeed(client *firestore.Client) *FirestoreChangeFeed {
	return &FirestoreChangeFeed{client: client}
}

// Subscribe starts a snapshot listener on the conversation's messages and
// invokes handler on every change set after the initial one. Implements
// chatsync.ChangeFeed.
func (f *FirestoreChangeFeed) Subscribe(conversationID string, handler func()) (chatsync.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	iter := f.client.Collection("conversations").
		Doc(conversationID).
		Collection("messages").
		Snapshots(ctx)

	go func() {
		defer iter.Stop()

		// The first snapshot is the current state, not a change.
		first := true
		for {
			snapshot, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Change feed for conversation %s stopped: %v", conversationID, err)
				}
				return
			}
			if first {
				first = false
				continue
			}
			if len(snapshot.Changes) == 0 {
				continue
			}
			handler()
		}
	}()

	return feedSubscription{cancel: cancel}, nil
}

type feedSubscription struct {
	cancel context.CancelFunc
}

func (s feedSubscription) Unsubscribe() { s.cancel() }
