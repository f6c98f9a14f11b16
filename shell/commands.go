package shell

type command struct {
	name    string
	usage   string
	summary string
	minArgs int
	maxArgs int
}

// commands is in help order.
var commands = []command{
	{"mkdir", `mkdir "directory name"`, "create a directory in the remote working directory", 1, 1},
	{"put", `put "local file name"`, "upload a local file into the remote working directory", 1, 1},
	{"get", `get "remote file name"`, "download a remote file into the local working directory", 1, 1},
	{"append", `append "local file name" "remote file name"`, "append a local file onto a remote file", 2, 2},
	{"delete", `delete "remote file name"`, "delete a remote file or directory", 1, 1},
	{"ls", "ls", "list the remote working directory, directories first", 0, 0},
	{"cd", `cd "directory name"`, `change the remote working directory, ".." goes up a level; no argument prints it`, 0, 1},
	{"lls", "lls", "list the local working directory, directories first", 0, 0},
	{"lcd", `lcd "local directory name"`, `change the local working directory, ".." goes up a level; no argument prints it`, 0, 1},
	{"help", "help", "show this help again", 0, 0},
	{"exit", "exit", "quit the program", 0, 0},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}
