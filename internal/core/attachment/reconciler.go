package attachment

import (
	"context"
	"fmt"
	"path/filepath"
)

// Prior は更新前に記録されていた添付です。新規作成時はゼロ値を渡します。
type Prior struct {
	Photo     *Attachment
	Documents []Attachment
}

// Submission はクライアントが送信した添付の最終状態です。
type Submission struct {
	// KeptPhoto は残す写真の保存パスです。空文字は削除を意味します。
	KeptPhoto     string
	KeptDocuments []string
	NewPhoto      *Upload
	NewDocuments  []Upload
}

// Result は突き合わせの結果です。
type Result struct {
	Photo     *Attachment
	Documents []Attachment
	// ToDelete はレコード更新後に削除すべきファイルです。
	ToDelete []string
	// Stored は今回新たに保存したファイルです。コミット失敗時に破棄します。
	Stored []string
}

// Reconciler は既存の添付と送信内容を突き合わせ、保存と削除の対象を決定します。
type Reconciler struct {
	store Store
}

// NewReconciler は Reconciler を生成します。
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile は新規ファイルを保存し、最終的な添付リストと削除対象を返します。
// 保存に失敗した場合は今回保存したファイルを削除してからエラーを返します。
func (r *Reconciler) Reconcile(ctx context.Context, prior Prior, sub Submission) (*Result, error) {
	res := &Result{Documents: make([]Attachment, 0, len(prior.Documents)+len(sub.NewDocuments))}

	keptPhoto := false
	if prior.Photo != nil && prior.Photo.StoredPath != "" {
		if sub.KeptPhoto != "" && sub.KeptPhoto == prior.Photo.StoredPath {
			keptPhoto = true
			photo := *prior.Photo
			res.Photo = &photo
		} else {
			res.ToDelete = append(res.ToDelete, prior.Photo.StoredPath)
		}
	}

	if !keptPhoto && sub.NewPhoto != nil && sub.NewPhoto.Size > 0 {
		stored, err := r.store.Store(ctx, sub.NewPhoto.Content, filepath.Ext(sub.NewPhoto.Name))
		if err != nil {
			r.discard(ctx, res.Stored)
			return nil, fmt.Errorf("%w: photo %q: %v", ErrStorage, sub.NewPhoto.Name, err)
		}
		res.Stored = append(res.Stored, stored)
		res.Photo = &Attachment{OriginalName: sub.NewPhoto.Name, StoredPath: stored}
	}

	kept := make(map[string]struct{}, len(sub.KeptDocuments))
	for _, ref := range sub.KeptDocuments {
		kept[ref] = struct{}{}
	}
	for _, doc := range prior.Documents {
		if _, ok := kept[doc.StoredPath]; ok {
			res.Documents = append(res.Documents, doc)
			continue
		}
		if doc.StoredPath != "" {
			res.ToDelete = append(res.ToDelete, doc.StoredPath)
		}
	}

	for _, upload := range sub.NewDocuments {
		if upload.Size <= 0 {
			continue
		}
		stored, err := r.store.Store(ctx, upload.Content, filepath.Ext(upload.Name))
		if err != nil {
			r.discard(ctx, res.Stored)
			return nil, fmt.Errorf("%w: document %q: %v", ErrStorage, upload.Name, err)
		}
		res.Stored = append(res.Stored, stored)
		res.Documents = append(res.Documents, Attachment{OriginalName: upload.Name, StoredPath: stored})
	}

	return res, nil
}

// Discard は保存済みファイルをベストエフォートで削除し、失敗したパスを返します。
func (r *Reconciler) Discard(ctx context.Context, paths []string) map[string]error {
	return r.discard(ctx, paths)
}

func (r *Reconciler) discard(ctx context.Context, paths []string) map[string]error {
	var failed map[string]error
	for _, p := range paths {
		if err := r.store.Delete(ctx, p); err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[p] = err
		}
	}
	return failed
}
