// Package objectstore keeps the user registry and user files in a bucket.
package objectstore

import "strings"

const (
	adminDir      = "admin$/"
	challengesDir = adminDir + "challenges/"
	usernamesDir  = adminDir + "usernames/"
	usersDir      = "users/"

	// Separator joins username and answer in a record name. Valid usernames
	// never contain it.
	Separator = "$"
)

func recordName(username, answer string) string {
	return challengesDir + username + Separator + answer
}

func recordPrefix(username string) string {
	return challengesDir + username + Separator
}

func claimName(username string) string {
	return usernamesDir + username
}

func userDir(username string) string {
	return usersDir + username + "/"
}

func fileName(username, filename string) string {
	return userDir(username) + filename
}

// parseRecordName returns the answer encoded in a record name.
func parseRecordName(username, name string) (string, bool) {
	answer, ok := strings.CutPrefix(name, recordPrefix(username))
	if !ok || answer == "" || strings.Contains(answer, "/") {
		return "", false
	}
	return answer, true
}
