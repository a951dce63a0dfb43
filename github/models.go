// Copyright 2025 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package github maps GitHub REST API payloads for branches, repositories,
// commits and users, and builds the API URLs used to walk them. It performs
// no requests itself.
package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const apiURL = "https://api.github.com"

const (
	utcLayout    = "2006-01-02T15:04:05Z"
	offsetLayout = "2006-01-02T15:04:05-07:00"
)

// ParseDate parses the two timestamp forms the API returns,
// 2006-01-02T15:04:05Z and 2006-01-02T15:04:05+07:00, into UTC. Anything
// else yields the zero time.
func ParseDate(s string) time.Time {
	var (
		t   time.Time
		err error
	)

	if len(s) >= len(offsetLayout) {
		t, err = time.Parse(offsetLayout, s[:len(offsetLayout)])
	} else {
		t, err = time.Parse(utcLayout, s)
	}

	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}

type Branch struct {
	Name string
	SHA  string
}

// CommitsURL lists the commits of the branch in repo, optionally only
// those after since.
func (b Branch) CommitsURL(repo Repository, since *time.Time) string {
	url := fmt.Sprintf("%s/repos/%s/commits?sha=%s", apiURL, repo.Name, b.SHA)
	if since != nil {
		url += "&since=" + since.UTC().Format(utcLayout)
	}

	return url
}

func (b *Branch) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string `json:"name"`
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error decoding branch: %w", err)
	}

	b.Name = raw.Name
	b.SHA = raw.Commit.SHA
	return nil
}

// Repository is identified by its full name, owner/name.
type Repository struct {
	Name          string
	DefaultBranch string
	IsFork        bool
	Parent        *Repository
}

var ErrNoParent = errors.New("repository has no parent")

func (r Repository) BranchesURL() string {
	return fmt.Sprintf("%s/repos/%s/branches", apiURL, r.Name)
}

func (r Repository) ContributorsURL() string {
	return fmt.Sprintf("%s/repos/%s/contributors", apiURL, r.Name)
}

// Owner returns the owner part of the repository name.
func (r Repository) Owner() string {
	owner, _, _ := strings.Cut(r.Name, "/")
	return owner
}

// CompareURL compares base with head in this repository, or with
// withParent, base in the parent repository with head in this fork.
func (r Repository) CompareURL(base, head Branch, withParent bool) (string, error) {
	if !withParent {
		return fmt.Sprintf("%s/repos/%s/compare/%s...%s", apiURL, r.Name, base.Name, head.Name), nil
	}

	if r.Parent == nil {
		return "", fmt.Errorf("cannot compare %s with its parent: %w", r.Name, ErrNoParent)
	}

	return fmt.Sprintf("%s/repos/%s/compare/%s...%s:%s", apiURL, r.Parent.Name, base.Name, r.Owner(), head.Name), nil
}

func (r *Repository) UnmarshalJSON(data []byte) error {
	var raw struct {
		FullName      string      `json:"full_name"`
		DefaultBranch string      `json:"default_branch"`
		Fork          bool        `json:"fork"`
		Parent        *Repository `json:"parent"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error decoding repository: %w", err)
	}

	r.Name = raw.FullName
	r.DefaultBranch = raw.DefaultBranch
	r.IsFork = raw.Fork
	r.Parent = raw.Parent
	return nil
}

type commitPayload struct {
	SHA     string `json:"sha"`
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Author    *gitUser `json:"author"`
		Committer *gitUser `json:"committer"`
	} `json:"commit"`
	Author    *accountUser `json:"author"`
	Committer *accountUser `json:"committer"`
}

type gitUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

type accountUser struct {
	Login string `json:"login"`
}

// Commit is an entry of a commit listing.
type Commit struct {
	SHA     string
	APIURL  string
	HTMLURL string
	// Date is the committer date in UTC.
	Date time.Time
}

func (c Commit) String() string {
	return fmt.Sprintf("%s (%s)", c.SHA, c.Date)
}

func (c *Commit) UnmarshalJSON(data []byte) error {
	var raw commitPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error decoding commit: %w", err)
	}

	c.SHA = raw.SHA
	c.APIURL = raw.URL
	c.HTMLURL = raw.HTMLURL
	c.Date = committerDate(raw)
	return nil
}

func committerDate(raw commitPayload) time.Time {
	if raw.Commit.Committer == nil {
		return time.Time{}
	}

	return ParseDate(raw.Commit.Committer.Date)
}

// CommitWithUsers is a commit together with who wrote and who committed it.
type CommitWithUsers struct {
	SHA       string
	APIURL    string
	Date      time.Time
	Author    User
	Committer User
}

func (c *CommitWithUsers) UnmarshalJSON(data []byte) error {
	var raw commitPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error decoding commit: %w", err)
	}

	c.SHA = raw.SHA
	c.APIURL = raw.URL
	c.Date = committerDate(raw)
	c.Author = commitUser(raw.Author, raw.Commit.Author)
	c.Committer = commitUser(raw.Committer, raw.Commit.Committer)
	return nil
}

// commitUser combines the GitHub account, which is null when the commit
// email is not linked to one, with the name and email recorded in git.
func commitUser(account *accountUser, git *gitUser) User {
	var login, name, email string
	if account != nil {
		login = account.Login
	}
	if git != nil {
		name = git.Name
		email = git.Email
	}

	return NewUser(login, name, email)
}

// User is a lower-cased identity. Users are comparable and can be used as
// map keys to de-duplicate contributors.
type User struct {
	Login string
	Name  string
	Email string
}

func NewUser(login, name, email string) User {
	return User{
		Login: strings.ToLower(login),
		Name:  strings.ToLower(name),
		Email: strings.ToLower(email),
	}
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		Login *string `json:"login"`
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error decoding user: %w", err)
	}

	*u = NewUser(deref(raw.Login), deref(raw.Name), deref(raw.Email))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
