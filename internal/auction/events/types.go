package events

// Event type names. These are the wire values stored in the outbox and
// published on the auction.events.<type> NATS subjects.
const (
	TypeRoundStarted   = "RoundStarted"
	TypeRoundActivated = "RoundActivated"
	TypePlayerSold     = "PlayerSold"
	TypePlayerUnsold   = "PlayerUnsold"
	TypeRoundWaiting   = "RoundWaiting"
	TypeAuctionEnded   = "AuctionEnded"
	TypeAuctionReset   = "AuctionReset"
)
