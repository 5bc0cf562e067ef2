package inmemdb

import (
	"sync"

	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/user"
)

type (
	DB struct {
		user  *userTable
		class *classTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*class.Class
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		class: &classTable{table: make(map[string]*class.Class)},
	}
}
