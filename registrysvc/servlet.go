package registrysvc

import (
	"context"
	"encoding/json"

	"beam/auth"
	"beam/beamerr"
	"beam/service"
	"beam/servicelocator"
)

// Servlet exposes the content-store operations over a *servicelocator.Locator
// the same tree, accounts, and permission grants the locator itself
// uses. Meant to be wrapped by auth.NewServletAdapter so every slot
// here runs behind the same session handshake as the locator's own
// Servlet, sharing one auth.Session per connection.
type Servlet struct {
	Locator *servicelocator.Locator
}

// RegisterSlots implements auth.InnerServlet.
func (s *Servlet) RegisterSlots(slots *service.Slots) {
	slots.Register(LoadPathMethod, s.handleLoadPath)
	slots.Register(LoadParentMethod, s.handleLoadParent)
	slots.Register(LoadChildrenMethod, s.handleLoadChildren)
	slots.Register(MakeDirectoryMethod, s.handleMakeDirectory)
	slots.Register(CopyMethod, s.handleCopy)
	slots.Register(MoveMethod, s.handleMove)
	slots.Register(LoadValueMethod, s.handleLoadValue)
	slots.Register(MakeValueMethod, s.handleMakeValue)
	slots.Register(StoreValueMethod, s.handleStoreValue)
	slots.Register(DeleteMethod, s.handleDelete)
}

func caller(ctx context.Context) (int64, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return 0, beamerr.NewServiceException("registrysvc: no session attached to connection")
	}
	return session.AccountID(), nil
}

func decode(params []byte, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return beamerr.Wrap("registrysvc: invalid request parameters", err)
	}
	return nil
}

func (s *Servlet) handleLoadPath(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadPathArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.LoadPath(ctx, callerID, args.Root, args.Path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadPathReply{Entry: entry})
}

func (s *Servlet) handleLoadParent(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadParentArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.LoadParent(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadParentReply{Entry: entry})
}

func (s *Servlet) handleLoadChildren(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadChildrenArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Locator.LoadChildren(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadChildrenReply{Entries: entries})
}

func (s *Servlet) handleMakeDirectory(ctx context.Context, params []byte) ([]byte, error) {
	var args MakeDirectoryArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.MakeDirectory(ctx, callerID, args.Name, args.Parent)
	if err != nil {
		return nil, err
	}
	return json.Marshal(MakeDirectoryReply{Entry: entry})
}

func (s *Servlet) handleCopy(ctx context.Context, params []byte) ([]byte, error) {
	var args CopyArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.Copy(ctx, callerID, args.ID, args.Destination)
	if err != nil {
		return nil, err
	}
	return json.Marshal(CopyReply{Entry: entry})
}

func (s *Servlet) handleMove(ctx context.Context, params []byte) ([]byte, error) {
	var args MoveArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.Move(ctx, callerID, args.ID, args.Destination); err != nil {
		return nil, err
	}
	return json.Marshal(MoveReply{})
}

func (s *Servlet) handleLoadValue(ctx context.Context, params []byte) ([]byte, error) {
	var args LoadValueArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Locator.LoadValue(ctx, callerID, args.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LoadValueReply{Data: data})
}

func (s *Servlet) handleMakeValue(ctx context.Context, params []byte) ([]byte, error) {
	var args MakeValueArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.Locator.MakeValue(ctx, callerID, args.Name, args.Parent)
	if err != nil {
		return nil, err
	}
	return json.Marshal(MakeValueReply{Entry: entry})
}

func (s *Servlet) handleStoreValue(ctx context.Context, params []byte) ([]byte, error) {
	var args StoreValueArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.StoreValue(ctx, callerID, args.ID, args.Data); err != nil {
		return nil, err
	}
	return json.Marshal(StoreValueReply{})
}

func (s *Servlet) handleDelete(ctx context.Context, params []byte) ([]byte, error) {
	var args DeleteArgs
	if err := decode(params, &args); err != nil {
		return nil, err
	}
	callerID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Locator.DeleteDirectoryEntry(ctx, callerID, args.ID); err != nil {
		return nil, err
	}
	return json.Marshal(DeleteReply{})
}
