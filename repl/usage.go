package repl

import (
	"fmt"

	"github.com/pterm/pterm"
)

const helpText = `
  METHOD url [payload]     perform a request (connect, delete, get, head,
                           options, patch, post, put, trace)
  set <option> <value>     change a setting
  unset <option>           reset a setting (prefix can't be unset)
  show <option>|headers    print a setting or the headers
  headers                  print the headers
  add <Header: value>      add a header, replacing one with the same name
  del <Header>             remove a header
  |command                 pipe the last response body to a shell command
  # comment                ignored
  help, usage              this text
  version                  print the version
  quit, exit               leave

options: useragent, prefix, http (1.0, 1.1, 2, 2TLS, 3, none), port,
         peer-verification (on, off)`

func (r *REPL) usage() {
	pterm.Info.WithWriter(r.out).Println("crest commands:")
	fmt.Fprintln(r.out, helpText[1:])
}
