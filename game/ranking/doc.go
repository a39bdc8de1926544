// Package ranking keeps the leaderboard of finished games.
//
// A Board accepts Submissions (username, score, completion time in
// milliseconds), validates them and records Entries identified by ULIDs.
// Top returns the best entries ordered by score descending, then time
// ascending, then submission order. Results live in memory only.
package ranking
