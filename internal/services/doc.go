// Package services defines the [Catalog] and [TitleProvider] interfaces and implements them for Spotify and YouTube.
//
// # Catalog
//
// [SpotifyCatalog] wraps github.com/zmb3/spotify/v2 over an [oauth2] client. A token that holds only a
// refresh token is refreshed automatically on first use, so a stored SPOTIFY_REFRESH_TOKEN is enough to run unattended.
// Playlist additions are split into requests of at most 100 tracks.
//
// # Title Providers
//
// Source titles come from one of:
//   - [YouTubeAPIProvider]: YouTube Data API v3 playlistItems, 50 per page, needs an API key
//   - [YTDLPProvider]: runs yt-dlp --flat-playlist -J
//   - [NativeProvider]: github.com/kkdai/youtube/v2, in-process
//   - [FileProvider]: local .txt, .json or .yaml lists
//
// [NewSourceProvider] chains them with [FallbackProvider] so a missing key or an exhausted quota
// silently moves on to the local extractor. Every provider drops empty titles and keeps playlist order.
//
// # Error Handling
//
// All HTTP traffic runs through a transport that converts HTTP 429 into [shared.RateLimitError]
// with the parsed Retry-After value. Callers decide whether to wait and retry.
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrRateLimited] : HTTP 429 (use [shared.AsRateLimit] for the hint)
//   - [shared.ErrQuotaExceeded] : YouTube key rejected or out of quota
//   - [shared.ErrAPIRequest] : any other failed request
package services
