package domain

import (
	"fmt"
	"time"
)

// for debug
func (p *Post) String() string {
	exp := "never"
	if p.ExpiresAt != nil {
		exp = p.ExpiresAt.Format(time.StampMilli)
	}
	return fmt.Sprintf("[id:%s, author:%s, category:%s, lifetime:%s, expires:%s, reactions:%d, comments:%d, archived:%v]",
		p.Id, p.AuthorId, p.Category, p.Lifetime, exp, p.TotalReactions(), len(p.Comments), p.Archived)
}

func (t *Transaction) String() string {
	return fmt.Sprintf("[id:%s, type:%s, amount:%d, category:%s, reason:%s, balance_after:%d]",
		t.Id, t.Type, t.Amount, t.Category, t.Reason, t.After.Balance)
}
